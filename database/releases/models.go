// Package releases persists deployment release history: the ordered,
// oldest-first sequence of Release rows the acquisition service reads on
// every distributed-cache miss.
package releases

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/blitzstudios/code-push-server/selection"
)

// Release is the persisted row. DiffPackageMap is stored as a JSON
// column since neither sqlite nor mysql give us a native map type.
type Release struct {
	ID uint `gorm:"primarykey"`

	DeploymentKey string `gorm:"column:deployment_key;size:64;not null;index:idx_release_deployment"`
	Label         string `gorm:"column:label;size:32;not null"`
	AppVersion    string `gorm:"column:app_version;size:64;not null"`
	PackageHash   string `gorm:"column:package_hash;size:64;not null;index:idx_release_package_hash"`
	BlobURL       string `gorm:"column:blob_url;size:1024;not null"`
	Size          int64  `gorm:"column:size;not null"`
	IsMandatory   bool   `gorm:"column:is_mandatory;not null;default:false"`
	IsDisabled    bool   `gorm:"column:is_disabled;not null;default:false"`
	Description   string `gorm:"column:description;type:text"`

	Rollout                    *int       `gorm:"column:rollout"`
	RolloutHoldDurationMinutes *int       `gorm:"column:rollout_hold_duration_minutes"`
	RolloutRampDurationMinutes *int       `gorm:"column:rollout_ramp_duration_minutes"`
	RolloutUploadTime          *time.Time `gorm:"column:rollout_upload_time"`

	DiffPackageMapJSON string `gorm:"column:diff_package_map;type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Release) TableName() string { return "releases" }

// toSelection converts the persisted row into the in-memory shape the
// selection engine walks.
func (r Release) toSelection() selection.Release {
	out := selection.Release{
		Label:                      r.Label,
		AppVersion:                 r.AppVersion,
		PackageHash:                r.PackageHash,
		BlobURL:                    r.BlobURL,
		Size:                       r.Size,
		IsMandatory:                r.IsMandatory,
		IsDisabled:                 r.IsDisabled,
		Description:                r.Description,
		Rollout:                    r.Rollout,
		RolloutHoldDurationMinutes: r.RolloutHoldDurationMinutes,
		RolloutRampDurationMinutes: r.RolloutRampDurationMinutes,
		RolloutUploadTime:          r.RolloutUploadTime,
	}
	if r.DiffPackageMapJSON != "" {
		var m map[string]selection.DiffEntry
		if err := json.Unmarshal([]byte(r.DiffPackageMapJSON), &m); err == nil {
			out.DiffPackageMap = m
		}
	}
	return out
}

// fromSelection converts an in-memory release into its persisted row for
// the given deployment, marshaling the diff map to its JSON column.
func fromSelection(deploymentKey string, r selection.Release) (Release, error) {
	row := Release{
		DeploymentKey:              deploymentKey,
		Label:                      r.Label,
		AppVersion:                 r.AppVersion,
		PackageHash:                r.PackageHash,
		BlobURL:                    r.BlobURL,
		Size:                       r.Size,
		IsMandatory:                r.IsMandatory,
		IsDisabled:                 r.IsDisabled,
		Description:                r.Description,
		Rollout:                    r.Rollout,
		RolloutHoldDurationMinutes: r.RolloutHoldDurationMinutes,
		RolloutRampDurationMinutes: r.RolloutRampDurationMinutes,
		RolloutUploadTime:          r.RolloutUploadTime,
	}
	if len(r.DiffPackageMap) > 0 {
		b, err := json.Marshal(r.DiffPackageMap)
		if err != nil {
			return Release{}, err
		}
		row.DiffPackageMapJSON = string(b)
	}
	return row, nil
}

// Migrate creates/updates the releases table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Release{})
}
