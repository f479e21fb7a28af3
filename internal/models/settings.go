package models

// SettingsSaveRequest validates and stores a provider configuration
type SettingsSaveRequest struct {
	Provider        string `json:"provider" binding:"required"`
	APIKey          string `json:"api_key" binding:"required"`
	ModelPreference string `json:"model_preference"`
}

// ValidationRequest checks an API key against the provider without storing it
type ValidationRequest struct {
	Provider string `json:"provider" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
}

// SettingsResponse is the stored configuration with the key withheld
type SettingsResponse struct {
	Configured      bool   `json:"configured"`
	Provider        string `json:"provider,omitempty"`
	ModelPreference string `json:"model_preference,omitempty"`
}
