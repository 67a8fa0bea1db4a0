// pkg/registry/schema.go
package registry

// FlowRegistry is the machine-readable catalog of the flows this service
// exposes: names, shapes, error codes. Front-ends and the catalog tool
// consume it; the API serves it verbatim.
type FlowRegistry struct {
	Version     string      `json:"version"`
	LastUpdated string      `json:"lastUpdated"`
	Flows       []FlowEntry `json:"flows"`
}

type FlowEntry struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	ToolEnabled  bool                   `json:"toolEnabled"`
	Tools        []string               `json:"tools,omitempty"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	ErrorCodes   []string               `json:"errorCodes"`
	Timeout      string                 `json:"timeout,omitempty"`
}
