package selection

import (
	"log/slog"
	"time"
)

// SelectUpdate walks releases (stored oldest first) newest to oldest and
// returns exactly one UpdateResponse: either a no-update answer or a
// single update descriptor. It honors rollout ramp-up, mandatory-flag
// forwarding over skipped releases, and binary-diff substitution.
func SelectUpdate(releases []Release, req CheckRequest, fetchDiffMap DiffMapFetcher, now time.Time) UpdateResponse {
	var (
		selectedUpdate   *UpdateResponse
		selectedRelease  *Release
		forceMandatory   bool
		pendingMandatory bool
	)

	for i := len(releases) - 1; i >= 0; i-- {
		release := releases[i]

		isCurrent := isCurrentRelease(release, req)

		if isCurrent && release.IsDisabled {
			// A disabled current release is as if the client were on an
			// unknown version; keep walking instead of short-circuiting.
			continue
		}

		if isCurrent {
			if selectedUpdate != nil {
				return finalize(*selectedUpdate, selectedRelease, forceMandatory, req, fetchDiffMap)
			}
			return noUpdateResponse(req)
		}

		if release.IsDisabled {
			continue
		}

		applies := req.RequestIsCompanion ||
			(req.NormalizedAppVersion != "" && satisfiesRange(req.NormalizedAppVersion, release.AppVersion))
		if !applies {
			continue
		}

		if selectedUpdate != nil {
			// Older and applicable: only its mandatory flag matters now.
			if release.IsMandatory {
				forceMandatory = true
			}
			continue
		}

		selected := false
		if !IsUnfinishedRollout(release.Rollout) {
			selected = true
		} else {
			eff := EffectiveRollout(release.rolloutParams(), now)
			tag := RolloutTag(release.Label, release.PackageHash)
			// A release with neither label nor hash has no cohort tag and
			// is not rollout-gated.
			selected = req.BetaRequested || tag == "" || IsSelectedForRollout(req.ClientUniqueID, eff, tag)
		}

		if selected {
			r := release
			selectedRelease = &r
			resp := createFromRelease(release)
			selectedUpdate = &resp
			forceMandatory = pendingMandatory || release.IsMandatory
		} else if release.IsMandatory {
			pendingMandatory = true
		}
	}

	if selectedUpdate != nil {
		return finalize(*selectedUpdate, selectedRelease, forceMandatory, req, fetchDiffMap)
	}
	return noUpdateResponse(req)
}

func isCurrentRelease(release Release, req CheckRequest) bool {
	if req.RequestLabel != "" {
		return release.Label == req.RequestLabel
	}
	if req.RequestPackageHash != "" {
		return release.PackageHash == req.RequestPackageHash
	}
	return false
}

func createFromRelease(release Release) UpdateResponse {
	return UpdateResponse{
		IsAvailable: true,
		IsMandatory: release.IsMandatory,
		PackageHash: release.PackageHash,
		Label:       release.Label,
		Description: release.Description,
		DownloadURL: release.BlobURL,
		PackageSize: release.Size,
	}
}

func noUpdateResponse(req CheckRequest) UpdateResponse {
	appVersion := req.RawAppVersion
	if appVersion == "" {
		appVersion = req.NormalizedAppVersion
	}
	return UpdateResponse{
		IsAvailable:       false,
		AppVersion:        appVersion,
		TargetBinaryRange: appVersion,
	}
}

func finalize(resp UpdateResponse, selectedRelease *Release, forceMandatory bool, req CheckRequest, fetchDiffMap DiffMapFetcher) UpdateResponse {
	if req.RequestPackageHash != "" && fetchDiffMap != nil {
		diffMap, err := fetchDiffMap(selectedRelease.PackageHash)
		if err != nil {
			slog.Warn("diff map fetch failed, falling back to full bundle",
				"packageHash", selectedRelease.PackageHash, "error", err)
		} else if entry, ok := diffMap[req.RequestPackageHash]; ok {
			resp.DownloadURL = entry.URL
			resp.PackageSize = entry.Size
		}
	}

	if forceMandatory {
		resp.IsMandatory = true
	}

	resp.TargetBinaryRange = selectedRelease.AppVersion
	resp.AppVersion = req.RawAppVersion
	if resp.AppVersion == "" {
		resp.AppVersion = req.NormalizedAppVersion
	}
	return resp
}
