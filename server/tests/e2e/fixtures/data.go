// Package fixtures seeds scenario data.
package fixtures

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/server/internal/service"
	"github.com/dobriak/mini-ipam/server/tests/e2e/helpers"
)

// Collection creates a collection through the service layer.
func Collection(t *testing.T, db *helpers.TestDB, name, block string) models.Collection {
	t.Helper()
	c, err := service.New(db.DB, zap.NewNop()).Collections.Create(context.Background(),
		&models.CollectionRequest{Name: name, CIDR: block})
	if err != nil {
		t.Fatalf("create collection %s: %v", block, err)
	}
	return *c
}

// Node creates a node through the service layer. collectionID 0 leaves it unassigned.
func Node(t *testing.T, db *helpers.TestDB, ip string, port int, collectionID int64) models.Node {
	t.Helper()
	req := models.NodeRequest{IPAddress: ip, Port: models.IntValue(int64(port))}
	if collectionID != 0 {
		req.CollectionID = models.IntValue(collectionID)
	}
	n, err := service.New(db.DB, zap.NewNop()).Nodes.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create node %s: %v", ip, err)
	}
	return *n
}

// Token creates an API token hashed with secret and returns the plaintext.
func Token(t *testing.T, db *helpers.TestDB, secret, name string) string {
	t.Helper()
	plain, _, err := service.NewTokenService(db.DB, zap.NewNop(), secret).Create(context.Background(), name)
	if err != nil {
		t.Fatalf("create token %s: %v", name, err)
	}
	return plain
}
