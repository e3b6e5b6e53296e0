package selection

import "time"

// DiffEntry describes a binary-diff archive from some source packageHash
// to the release it's attached to.
type DiffEntry struct {
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Release is the versioned unit the engine walks. It is the in-memory
// shape used by selection; storage and cache layers convert to and from
// their own persisted representations. JSON tags let it round-trip
// through the distributed response cache verbatim.
type Release struct {
	Label       string `json:"label"`
	AppVersion  string `json:"appVersion"`
	PackageHash string `json:"packageHash"`
	BlobURL     string `json:"blobUrl"`
	Size        int64  `json:"size"`
	IsMandatory bool   `json:"isMandatory"`
	IsDisabled  bool   `json:"isDisabled"`
	Description string `json:"description,omitempty"`

	Rollout                    *int       `json:"rollout,omitempty"`
	RolloutHoldDurationMinutes *int       `json:"rolloutHoldDurationMinutes,omitempty"`
	RolloutRampDurationMinutes *int       `json:"rolloutRampDurationMinutes,omitempty"`
	RolloutUploadTime          *time.Time `json:"rolloutUploadTime,omitempty"`

	DiffPackageMap map[string]DiffEntry `json:"diffPackageMap,omitempty"`
}

func (r Release) rolloutParams() RolloutParams {
	return RolloutParams{
		Rollout:                    r.Rollout,
		RolloutHoldDurationMinutes: r.RolloutHoldDurationMinutes,
		RolloutRampDurationMinutes: r.RolloutRampDurationMinutes,
		RolloutUploadTime:          r.RolloutUploadTime,
	}
}

// CheckRequest is the parsed, normalized shape of an update-check request
// that the engine consumes.
type CheckRequest struct {
	ClientUniqueID       string
	BetaRequested        bool
	RequestLabel         string
	RequestPackageHash   string
	RawAppVersion        string
	NormalizedAppVersion string
	RequestIsCompanion   bool
}

// UpdateResponse is the engine's single output shape, independent of the
// legacy/new wire naming the handler serializes it into.
type UpdateResponse struct {
	IsAvailable       bool
	IsMandatory       bool
	AppVersion        string
	TargetBinaryRange string
	PackageHash       string
	Label             string
	Description       string
	DownloadURL       string
	PackageSize       int64
	UpdateAppVersion  bool
}

// DiffMapFetcher looks up the diff map cached for a release's package
// hash. Any error is logged by the caller and otherwise ignored — the
// full-bundle URL always stands in as a fallback.
type DiffMapFetcher func(targetPackageHash string) (map[string]DiffEntry, error)
