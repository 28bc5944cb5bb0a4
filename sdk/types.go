package sdk

// HeaderAPIToken carries the API token. It matches the server middleware.
const HeaderAPIToken = "X-Mini-IPAM-Token"

// LivenessResponse is returned by GET /health/live.
type LivenessResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
	Uptime     string `json:"uptime"`
}

// ReadinessResponse is returned by GET /health/ready.
type ReadinessResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
	Database   string `json:"database"`
}

// deleteResponse is the body of a successful DELETE.
type deleteResponse struct {
	Message string `json:"message"`
	Changes int64  `json:"changes"`
}
