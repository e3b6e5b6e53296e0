package releases

import (
	"time"

	"github.com/blitzstudios/code-push-server/database/dbcore"
	"github.com/blitzstudios/code-push-server/selection"
)

// GetPackageHistoryFromDeploymentKey 返回某个部署的全部发布记录，按上传时间升序
func GetPackageHistoryFromDeploymentKey(deploymentKey string) ([]selection.Release, error) {
	db := dbcore.GetDBInstance()
	var rows []Release
	if err := db.Where("deployment_key = ?", deploymentKey).
		Order("created_at asc, id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]selection.Release, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSelection())
	}
	return out, nil
}

// CommitRelease 插入一条新的发布记录（获取路径视角下只追加，不修改历史）
func CommitRelease(deploymentKey string, release selection.Release) error {
	db := dbcore.GetDBInstance()
	row, err := fromSelection(deploymentKey, release)
	if err != nil {
		return err
	}
	return db.Create(&row).Error
}

// SetDisabled 更新某个 label 的 isDisabled 标志，供管理面使用
func SetDisabled(deploymentKey, label string, disabled bool) error {
	db := dbcore.GetDBInstance()
	return db.Model(&Release{}).
		Where("deployment_key = ? AND label = ?", deploymentKey, label).
		Update("is_disabled", disabled).Error
}

// SetMandatory 更新某个 label 的 isMandatory 标志，供管理面使用
func SetMandatory(deploymentKey, label string, mandatory bool) error {
	db := dbcore.GetDBInstance()
	return db.Model(&Release{}).
		Where("deployment_key = ? AND label = ?", deploymentKey, label).
		Update("is_mandatory", mandatory).Error
}

// RecentDiffPackage 描述一条携带 diff 包映射的发布记录
type RecentDiffPackage struct {
	DeploymentKey  string
	PackageHash    string
	DiffPackageMap map[string]selection.DiffEntry
}

// GetRecentDiffPackageMaps 返回 since 之后提交且带有 diff 映射的发布
func GetRecentDiffPackageMaps(since time.Time) ([]RecentDiffPackage, error) {
	db := dbcore.GetDBInstance()
	var rows []Release
	if err := db.Where("created_at >= ? AND diff_package_map <> ''", since).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]RecentDiffPackage, 0, len(rows))
	for _, row := range rows {
		sel := row.toSelection()
		if len(sel.DiffPackageMap) == 0 {
			continue
		}
		out = append(out, RecentDiffPackage{
			DeploymentKey:  row.DeploymentKey,
			PackageHash:    row.PackageHash,
			DiffPackageMap: sel.DiffPackageMap,
		})
	}
	return out, nil
}
