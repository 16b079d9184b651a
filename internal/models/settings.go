package models

// SystemSettingsID is the fixed _id of the singleton settings document.
const SystemSettingsID = "website_settings"

type SystemSettings struct {
	ID                string `json:"_id"`
	IsMaintenanceMode bool   `json:"isMaintenanceMode"`
}

type UpdateMaintenanceRequest struct {
	IsMaintenanceMode *bool `json:"isMaintenanceMode"`
}

func (r *UpdateMaintenanceRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.IsMaintenanceMode == nil {
		errors["isMaintenanceMode"] = "isMaintenanceMode is required"
	}
	return errors
}
