package domain

// Document is an imported source document. Content is HTML in which
// highlighted spans are <mark> elements.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Format  string `json:"format"`
}

// Page is a fetched web page reduced to its main content.
type Page struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	CleanHTML string `json:"clean_html"`
}

type NormalizeRequest struct {
	URL string `json:"url"`
}

type SlideSpec struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

type OutlineResponse struct {
	Provider string      `json:"provider"`
	Slides   []SlideSpec `json:"slides"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type CapabilitiesResponse struct {
	Providers []ProviderCapability `json:"providers"`
	Formats   []string             `json:"formats"`
	Templates TemplateCapabilities `json:"templates"`
	Connector ConnectorCapability  `json:"connector"`
}

type ProviderCapability struct {
	Name             string `json:"name"`
	RequiresAPIKey   bool   `json:"requiresApiKey"`
	RequiresEndpoint bool   `json:"requiresEndpoint"`
	DefaultModel     string `json:"defaultModel,omitempty"`
	DefaultEndpoint  string `json:"defaultEndpoint,omitempty"`
}

type TemplateCapabilities struct {
	MaxBytes      int64    `json:"maxBytes"`
	DefaultSource string   `json:"defaultSource"`
	RequiredRoles []string `json:"requiredRoles"`
}

type ConnectorCapability struct {
	Active string `json:"active"`
	Import bool   `json:"import"`
	OAuth  bool   `json:"oauth"`
}

type ConnectorImportRequest struct {
	DocumentID string `json:"documentId"`
}

type ConnectorImportResponse struct {
	Connector string   `json:"connector"`
	Document  Document `json:"document"`
}

type ConnectorAuthStartResponse struct {
	Connector      string `json:"connector"`
	SessionKey     string `json:"sessionKey"`
	AuthURL        string `json:"authUrl"`
	StateExpiresAt string `json:"stateExpiresAt"`
}

type ConnectorAuthCallbackResponse struct {
	Connector     string `json:"connector"`
	SessionKey    string `json:"sessionKey"`
	Authenticated bool   `json:"authenticated"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

type APIErrorResponse struct {
	Error APIError `json:"error"`
}
