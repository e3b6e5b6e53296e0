package api

import "github.com/blitzstudios/code-push-server/selection"

// updateInfoLegacy is the camelCase wire shape served from /updateCheck.
type updateInfoLegacy struct {
	IsAvailable       bool   `json:"isAvailable"`
	IsMandatory       bool   `json:"isMandatory"`
	AppVersion        string `json:"appVersion"`
	TargetBinaryRange string `json:"target_binary_range,omitempty"`
	PackageHash       string `json:"packageHash,omitempty"`
	Label             string `json:"label,omitempty"`
	Description       string `json:"description,omitempty"`
	DownloadURL       string `json:"downloadURL,omitempty"`
	PackageSize       int64  `json:"packageSize,omitempty"`
	UpdateAppVersion  bool   `json:"updateAppVersion"`
}

// updateInfoNew is the snake_case wire shape served from
// /v0.1/public/codepush/update_check.
type updateInfoNew struct {
	IsAvailable       bool   `json:"is_available"`
	IsMandatory       bool   `json:"is_mandatory"`
	AppVersion        string `json:"app_version"`
	TargetBinaryRange string `json:"target_binary_range,omitempty"`
	PackageHash       string `json:"package_hash,omitempty"`
	Label             string `json:"label,omitempty"`
	Description       string `json:"description,omitempty"`
	DownloadURL       string `json:"download_url,omitempty"`
	PackageSize       int64  `json:"package_size,omitempty"`
	UpdateAppVersion  bool   `json:"update_app_version"`
}

func toLegacy(r selection.UpdateResponse) updateInfoLegacy {
	return updateInfoLegacy{
		IsAvailable:       r.IsAvailable,
		IsMandatory:       r.IsMandatory,
		AppVersion:        r.AppVersion,
		TargetBinaryRange: r.TargetBinaryRange,
		PackageHash:       r.PackageHash,
		Label:             r.Label,
		Description:       r.Description,
		DownloadURL:       r.DownloadURL,
		PackageSize:       r.PackageSize,
		UpdateAppVersion:  r.UpdateAppVersion,
	}
}

func toNew(r selection.UpdateResponse) updateInfoNew {
	return updateInfoNew{
		IsAvailable:       r.IsAvailable,
		IsMandatory:       r.IsMandatory,
		AppVersion:        r.AppVersion,
		TargetBinaryRange: r.TargetBinaryRange,
		PackageHash:       r.PackageHash,
		Label:             r.Label,
		Description:       r.Description,
		DownloadURL:       r.DownloadURL,
		PackageSize:       r.PackageSize,
		UpdateAppVersion:  r.UpdateAppVersion,
	}
}
