package scenarios

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/server/tests/e2e/fixtures"
	"github.com/dobriak/mini-ipam/server/tests/e2e/helpers"
)

func setupTestAPI(t *testing.T) (*helpers.TestDB, *helpers.TestClient) {
	t.Helper()
	db := helpers.NewTestDB(t)
	server := helpers.NewTestServer(t, db, helpers.ServerOptions{})
	return db, helpers.NewTestClient(t, server.URL)
}

func TestHealthEndpoints(t *testing.T) {
	_, client := setupTestAPI(t)

	var live struct {
		Status     string `json:"status"`
		InstanceID string `json:"instance_id"`
	}
	client.GET("/health/live").RequireStatus(http.StatusOK).RequireJSON(&live)
	assert.Equal(t, "ok", live.Status)
	assert.Equal(t, "e2e-instance", live.InstanceID)

	client.GET("/health/ready").RequireStatus(http.StatusOK)

	resp := client.GET("/metrics").RequireStatus(http.StatusOK)
	assert.Contains(t, string(resp.Body), "mini_ipam_")
}

func TestCollectionLifecycle(t *testing.T) {
	_, client := setupTestAPI(t)

	var created models.MutationResponse[models.Collection]
	client.POST("/api/v1/collections", map[string]string{"name": "office", "cidr": "192.168.10.77/24"}).
		RequireStatus(http.StatusCreated).RequireJSON(&created)
	require.NotNil(t, created.Data)
	assert.Equal(t, models.MessageSuccess, created.Message)
	assert.Equal(t, "192.168.10.0/24", created.Data.CIDR, "host bits are dropped")
	id := created.Data.ID

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name    string
			body    any
			code    string
			message string
		}{
			{name: "overlap", body: map[string]string{"name": "x", "cidr": "192.168.10.128/25"}, code: "CIDR_OVERLAP", message: "CIDR overlaps existing collection"},
			{name: "public", body: map[string]string{"name": "x", "cidr": "1.2.3.0/24"}, code: "NOT_PRIVATE", message: "CIDR must be within RFC1918 private ranges"},
			{name: "bad octets", body: map[string]string{"name": "x", "cidr": "300.300.0.0/24"}, code: "INVALID_CIDR", message: "Invalid CIDR format"},
			{name: "missing name", body: map[string]string{"cidr": "10.0.0.0/8"}, code: "MISSING_FIELDS"},
			{name: "not json", body: "{", code: "INVALID_REQUEST"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				client.POST("/api/v1/collections", tt.body).AssertError(http.StatusBadRequest, tt.code, tt.message)
			})
		}
	})

	path := fmt.Sprintf("/api/v1/collections/%d", id)

	var updated models.MutationResponse[models.Collection]
	client.PUT(path, map[string]string{"name": "office-wide", "cidr": "192.168.10.0/23"}).
		RequireStatus(http.StatusOK).RequireJSON(&updated)
	assert.Equal(t, models.MessageUpdated, updated.Message)
	assert.Equal(t, "192.168.10.0/23", updated.Data.CIDR)

	var info models.ItemResponse[models.CollectionInfo]
	client.GET(path + "/info").RequireStatus(http.StatusOK).RequireJSON(&info)
	assert.Equal(t, "255.255.254.0", info.Data.Netmask)
	assert.Equal(t, uint64(510), info.Data.UsableIPs)

	var deleted struct {
		Message string `json:"message"`
		Changes int64  `json:"changes"`
	}
	client.DELETE(path).RequireStatus(http.StatusOK).RequireJSON(&deleted)
	assert.Equal(t, models.MessageDeleted, deleted.Message)
	assert.Equal(t, int64(1), deleted.Changes)

	client.GET(path).AssertError(http.StatusNotFound, "NOT_FOUND", "collection not found")
	client.DELETE(path).AssertError(http.StatusNotFound, "NOT_FOUND", "")
	client.GET("/api/v1/collections/abc").AssertError(http.StatusBadRequest, "INVALID_REQUEST", "invalid id")
}

func TestNodeAssignment(t *testing.T) {
	db, client := setupTestAPI(t)
	site := fixtures.Collection(t, db, "site", "172.16.0.0/12")
	lan := fixtures.Collection(t, db, "lan", "192.168.50.0/24")

	t.Run("explicit collection", func(t *testing.T) {
		var resp models.MutationResponse[models.Node]
		client.POST("/api/v1/nodes", map[string]any{"ip_address": "192.168.50.10", "port": "8080", "collection_id": fmt.Sprint(lan.ID), "name": "web"}).
			RequireStatus(http.StatusCreated).RequireJSON(&resp)
		require.NotNil(t, resp.Data.CollectionID)
		assert.Equal(t, lan.ID, *resp.Data.CollectionID)
		assert.Equal(t, 8080, resp.Data.Port)
	})

	t.Run("auto assign", func(t *testing.T) {
		var resp models.MutationResponse[models.Node]
		client.POST("/api/v1/nodes", map[string]any{"ip_address": "192.168.50.11", "port": 22, "auto_assign": true}).
			RequireStatus(http.StatusCreated).RequireJSON(&resp)
		require.NotNil(t, resp.Data.CollectionID)
		assert.Equal(t, lan.ID, *resp.Data.CollectionID)

		client.POST("/api/v1/nodes", map[string]any{"ip_address": "172.20.7.1", "port": 22, "auto_assign": true}).
			RequireStatus(http.StatusCreated).RequireJSON(&resp)
		require.NotNil(t, resp.Data.CollectionID)
		assert.Equal(t, site.ID, *resp.Data.CollectionID)
	})

	t.Run("unassigned", func(t *testing.T) {
		var resp models.MutationResponse[models.Node]
		client.POST("/api/v1/nodes", map[string]any{"ip_address": "10.0.0.5", "port": 0, "collection_id": ""}).
			RequireStatus(http.StatusCreated).RequireJSON(&resp)
		assert.Nil(t, resp.Data.CollectionID)
		assert.Nil(t, resp.Data.Name)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name    string
			body    map[string]any
			status  int
			code    string
			message string
		}{
			{name: "outside collection", body: map[string]any{"ip_address": "10.0.0.5", "port": 1, "collection_id": lan.ID}, status: http.StatusBadRequest, code: "IP_NOT_IN_COLLECTION", message: "IP not within collection CIDR"},
			{name: "unknown collection", body: map[string]any{"ip_address": "192.168.50.9", "port": 1, "collection_id": 999}, status: http.StatusBadRequest, code: "COLLECTION_NOT_FOUND"},
			{name: "port out of range", body: map[string]any{"ip_address": "192.168.50.9", "port": 65536}, status: http.StatusBadRequest, code: "INVALID_PORT", message: "port must be integer between 0 and 65535"},
			{name: "fractional port", body: map[string]any{"ip_address": "192.168.50.9", "port": "80.5"}, status: http.StatusBadRequest, code: "INVALID_PORT"},
			{name: "bad address", body: map[string]any{"ip_address": "192.168.50", "port": 1}, status: http.StatusBadRequest, code: "INVALID_IP", message: "Invalid IP address"},
			{name: "missing port", body: map[string]any{"ip_address": "192.168.50.9"}, status: http.StatusBadRequest, code: "MISSING_FIELDS"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				client.POST("/api/v1/nodes", tt.body).AssertError(tt.status, tt.code, tt.message)
			})
		}
	})

	var inLan models.ListResponse[models.Node]
	client.GET(fmt.Sprintf("/api/v1/collections/%d/nodes", lan.ID)).RequireStatus(http.StatusOK).RequireJSON(&inLan)
	assert.Len(t, inLan.Data, 2)

	var all models.ListResponse[models.Node]
	client.GET("/api/v1/nodes").RequireStatus(http.StatusOK).RequireJSON(&all)
	assert.Len(t, all.Data, 4)
}

func TestCollectionUpdateKeepsNodesInside(t *testing.T) {
	db, client := setupTestAPI(t)
	lan := fixtures.Collection(t, db, "lan", "192.168.1.0/24")
	fixtures.Node(t, db, "192.168.1.200", 22, lan.ID)

	client.PUT(fmt.Sprintf("/api/v1/collections/%d", lan.ID), map[string]string{"name": "lan", "cidr": "192.168.1.0/25"}).
		AssertError(http.StatusConflict, "STRAY_NODES", "")

	client.PUT(fmt.Sprintf("/api/v1/collections/%d", lan.ID), map[string]string{"name": "lan", "cidr": "192.168.0.0/23"}).
		RequireStatus(http.StatusOK)
}

func TestDeleteCollectionOrphansNodes(t *testing.T) {
	db, client := setupTestAPI(t)
	lan := fixtures.Collection(t, db, "lan", "172.16.5.0/24")
	node := fixtures.Node(t, db, "172.16.5.9", 443, lan.ID)

	client.DELETE(fmt.Sprintf("/api/v1/collections/%d", lan.ID)).RequireStatus(http.StatusOK)

	var resp models.ItemResponse[models.Node]
	client.GET(fmt.Sprintf("/api/v1/nodes/%d", node.ID)).RequireStatus(http.StatusOK).RequireJSON(&resp)
	require.NotNil(t, resp.Data.CollectionID, "deleting a collection does not clear node references")
	assert.Equal(t, lan.ID, *resp.Data.CollectionID)

	client.PUT(fmt.Sprintf("/api/v1/nodes/%d", node.ID), map[string]any{"ip_address": "172.16.5.9", "port": 443, "collection_id": lan.ID}).
		AssertError(http.StatusBadRequest, "COLLECTION_NOT_FOUND", "")
	client.PUT(fmt.Sprintf("/api/v1/nodes/%d", node.ID), map[string]any{"ip_address": "172.16.5.9", "port": 443}).
		RequireStatus(http.StatusOK)
}

func TestLookup(t *testing.T) {
	db, client := setupTestAPI(t)
	narrow := fixtures.Collection(t, db, "narrow", "192.168.1.0/24")
	// Nested blocks predate overlap checks and can only exist in old databases.
	db.Exec(`INSERT INTO collections (name, cidr) VALUES ('wide', '192.168.0.0/16')`)

	var hit models.LookupResponse
	client.GET("/api/v1/lookup?ip=192.168.1.5").RequireStatus(http.StatusOK).RequireJSON(&hit)
	require.NotNil(t, hit.Match)
	assert.Equal(t, narrow.ID, hit.Match.ID)

	var miss models.LookupResponse
	client.GET("/api/v1/lookup?ip=8.8.8.8").RequireStatus(http.StatusOK).RequireJSON(&miss)
	assert.Nil(t, miss.Match)
	assert.Equal(t, "8.8.8.8", miss.IP)

	client.GET("/api/v1/lookup").AssertError(http.StatusBadRequest, "INVALID_REQUEST", "")
	client.GET("/api/v1/lookup?ip=1.2.3").AssertError(http.StatusBadRequest, "INVALID_IP", "")
}

func TestRequestIDAndBodyLimit(t *testing.T) {
	_, client := setupTestAPI(t)

	resp := client.GET("/api/v1/collections")
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)

	huge := `{"name":"` + strings.Repeat("a", 70<<10) + `","cidr":"10.0.0.0/8"}`
	client.POST("/api/v1/collections", huge).AssertError(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "")
}

func TestTokenRequiredForWrites(t *testing.T) {
	db := helpers.NewTestDB(t)
	server := helpers.NewTestServer(t, db, helpers.ServerOptions{Secret: helpers.TestSecret})
	client := helpers.NewTestClient(t, server.URL)

	body := map[string]string{"name": "lan", "cidr": "10.1.0.0/16"}

	client.POST("/api/v1/collections", body).AssertError(http.StatusUnauthorized, "UNAUTHORIZED", "")
	client.GET("/api/v1/collections").RequireStatus(http.StatusOK)

	client.Token = "mipam_" + strings.Repeat("x", 43)
	client.POST("/api/v1/collections", body).AssertError(http.StatusUnauthorized, "UNAUTHORIZED", "")

	client.Token = fixtures.Token(t, db, helpers.TestSecret, "ci")
	client.POST("/api/v1/collections", body).RequireStatus(http.StatusCreated)

	var lastUsed sql.NullString
	require.NoError(t, db.DB.QueryRow(`SELECT last_used_at FROM api_tokens WHERE name = 'ci'`).Scan(&lastUsed))
	assert.True(t, lastUsed.Valid)
}
