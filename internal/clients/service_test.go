package clients

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/internal/gateway"
	"github.com/puntosclub/kiosk-backend/pkg/config"
	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/security"
)

// fastArgon keeps hashing cheap in tests.
var fastArgon = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fakeGateway struct {
	gateway.Gateway

	clients   map[uuid.UUID]models.Client
	salesFor  map[uuid.UUID]int
	inserted  []*models.Client
	updates   []map[string]any
	deleted   []uuid.UUID
	insertErr error
	affected  int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		clients:  map[uuid.UUID]models.Client{},
		salesFor: map[uuid.UUID]int{},
		affected: 1,
	}
}

func (f *fakeGateway) Insert(_ context.Context, table string, rows any) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if table == gateway.TableClients {
		client := rows.(*models.Client)
		f.inserted = append(f.inserted, client)
		f.clients[client.ID] = *client
	}
	return nil
}

func (f *fakeGateway) QueryOne(_ context.Context, table string, filter map[string]any, dest any) error {
	if table != gateway.TableClients {
		return pkgerrors.New(pkgerrors.CodeNotFound, "row not found")
	}
	if id, ok := filter["id"].(uuid.UUID); ok {
		if client, found := f.clients[id]; found {
			*dest.(*models.Client) = client
			return nil
		}
	}
	if phone, ok := filter["phone"].(string); ok {
		for _, client := range f.clients {
			if client.Phone == phone {
				*dest.(*models.Client) = client
				return nil
			}
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "client row not found")
}

func (f *fakeGateway) Query(_ context.Context, table string, filter map[string]any, dest any, _ ...gateway.QueryOpt) error {
	if table == gateway.TableSales {
		out := dest.(*[]models.Sale)
		clientID := filter["client_id"].(uuid.UUID)
		*out = make([]models.Sale, f.salesFor[clientID])
		return nil
	}
	if table == gateway.TableClients {
		out := dest.(*[]models.Client)
		for _, client := range f.clients {
			*out = append(*out, client)
		}
		return nil
	}
	return nil
}

func (f *fakeGateway) Update(_ context.Context, _ string, filter map[string]any, patch map[string]any) (int64, error) {
	f.updates = append(f.updates, patch)
	if f.affected > 0 {
		id := filter["id"].(uuid.UUID)
		client := f.clients[id]
		if name, ok := patch["name"].(string); ok {
			client.Name = name
		}
		if hash, ok := patch["secret_hash"].(string); ok {
			client.SecretHash = hash
		}
		f.clients[id] = client
	}
	return f.affected, nil
}

func (f *fakeGateway) Delete(_ context.Context, _ string, filter map[string]any) (int64, error) {
	id := filter["id"].(uuid.UUID)
	f.deleted = append(f.deleted, id)
	if _, ok := f.clients[id]; !ok {
		return 0, nil
	}
	delete(f.clients, id)
	return 1, nil
}

func newTestService(t *testing.T, gw gateway.Gateway) Service {
	t.Helper()
	svc, err := NewService(gw, fastArgon)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateHashesSecretAndDefaultsRole(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(t, gw)

	client, err := svc.Create(context.Background(), CreateClientInput{
		Phone:  " +34600111222 ",
		Name:   "Ana",
		Secret: "1234",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if client.Phone != "+34600111222" {
		t.Errorf("phone not trimmed: %q", client.Phone)
	}
	if client.Role != "client" {
		t.Errorf("role = %q, want client", client.Role)
	}
	if client.SecretHash == "1234" || !strings.HasPrefix(client.SecretHash, "$argon2id$") {
		t.Errorf("secret not hashed: %q", client.SecretHash)
	}
	ok, err := security.VerifySecret("1234", client.SecretHash)
	if err != nil || !ok {
		t.Errorf("stored hash must verify the original secret (ok=%v err=%v)", ok, err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, newFakeGateway())

	tests := []struct {
		name  string
		input CreateClientInput
	}{
		{"missing phone", CreateClientInput{Name: "Ana", Secret: "1234"}},
		{"missing name", CreateClientInput{Phone: "+34600111222", Secret: "1234"}},
		{"missing secret", CreateClientInput{Phone: "+34600111222", Name: "Ana"}},
		{"bad role", CreateClientInput{Phone: "+34600111222", Name: "Ana", Secret: "1234", Role: "vendor"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestDeleteGuardedBySales(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(t, gw)

	client, err := svc.Create(context.Background(), CreateClientInput{
		Phone: "+34600111222", Name: "Ana", Secret: "1234",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gw.salesFor[client.ID] = 2

	err = svc.Delete(context.Background(), client.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT for client with sales, got %v", err)
	}
	if len(gw.deleted) != 0 {
		t.Fatal("delete must not reach the gateway when sales exist")
	}
}

func TestDeleteWithoutSales(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(t, gw)

	client, err := svc.Create(context.Background(), CreateClientInput{
		Phone: "+34600111222", Name: "Ana", Secret: "1234",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), client.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err = svc.Delete(context.Background(), client.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND on second delete, got %v", err)
	}
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(t, gw)

	client, err := svc.Create(context.Background(), CreateClientInput{
		Phone: "+34600111222", Name: "Ana", Secret: "1234",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Ana Maria"
	updated, err := svc.Update(context.Background(), client.ID, UpdateClientInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Ana Maria" {
		t.Errorf("name = %q, want Ana Maria", updated.Name)
	}
	if len(gw.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(gw.updates))
	}
	if _, hasSecret := gw.updates[0]["secret_hash"]; hasSecret {
		t.Error("secret must not be patched when not provided")
	}

	_, err = svc.Update(context.Background(), client.ID, UpdateClientInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for empty patch, got %v", err)
	}
}

func TestGetByPhone(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(t, gw)

	created, err := svc.Create(context.Background(), CreateClientInput{
		Phone: "+34600111222", Name: "Ana", Secret: "1234",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByPhone(context.Background(), "+34600111222")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("id mismatch: %s vs %s", got.ID, created.ID)
	}
}
