package service

import (
	"context"
	"database/sql"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/server/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestServices(t *testing.T) (*Services, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	return New(newTestDB(t), zap.New(core)), logs
}

func mustCreateCollection(t *testing.T, svc *Services, name, cidr string) *models.Collection {
	t.Helper()
	c, err := svc.Collections.Create(context.Background(), &models.CollectionRequest{Name: name, CIDR: cidr})
	if err != nil {
		t.Fatalf("create collection %s: %v", cidr, err)
	}
	return c
}

func mustCreateNode(t *testing.T, svc *Services, req models.NodeRequest) *models.Node {
	t.Helper()
	n, err := svc.Nodes.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create node %s: %v", req.IPAddress, err)
	}
	return n
}

func nodeReq(ip string, port int64, collectionID int64) models.NodeRequest {
	req := models.NodeRequest{IPAddress: ip, Port: models.IntValue(port)}
	if collectionID != 0 {
		req.CollectionID = models.IntValue(collectionID)
	}
	return req
}

func zapNop() *zap.Logger { return zap.NewNop() }
