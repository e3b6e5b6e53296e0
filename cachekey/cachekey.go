// Package cachekey canonicalizes an update-check request URL into a
// deterministic cache key, stripping client-identifying and
// non-selecting fields.
package cachekey

import (
	"net/url"

	"github.com/blitzstudios/code-push-server/selection"
)

var droppedFields = []string{
	"clientUniqueId", "client_unique_id",
	"beta",
	"packageHash", "package_hash",
	"label",
}

var appVersionFields = []string{"appVersion", "app_version"}

const schemaParam = "__cacheSchema"

// Build parses originalURL, strips client-identifying and non-selecting
// fields, normalizes the app-version field, and appends the cache schema
// version, returning pathname + "?" + a stable query string. The result
// is a pure function of the request's cache-relevant inputs.
func Build(originalURL, schema string) (string, error) {
	u, err := url.Parse(originalURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for _, f := range droppedFields {
		q.Del(f)
	}
	for _, f := range appVersionFields {
		if v := q.Get(f); v != "" {
			q.Set(f, selection.NormalizeVersion(v))
		}
	}
	q.Set(schemaParam, schema)

	return u.Path + "?" + q.Encode(), nil
}
