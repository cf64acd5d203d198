package store

import (
	"encoding/json"
	"strings"
)

// CountPendingPackages counts the keys following the pending-package naming
// convention. Pure over key names; payloads are not opened.
func CountPendingPackages(keys []string) int {
	count := 0
	for _, key := range keys {
		if strings.HasPrefix(key, PackageKeyPrefix) {
			count++
		}
	}
	return count
}

// CountPendingRecords opens every pending package and sums its member-record
// count. A corrupt payload is skipped with a warning so one bad entry never
// blocks syncing the rest.
func CountPendingRecords(s Interface) (int, error) {
	keys, err := s.Keys(PackageKeyPrefix)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, key := range keys {
		raw, err := s.Get(key)
		if err != nil {
			serviceLogger().Warn("skipping unreadable package", "key", key, "error", err)
			continue
		}
		var pkg Package
		if err := json.Unmarshal([]byte(raw), &pkg); err != nil {
			serviceLogger().Warn("skipping corrupt package", "key", key, "error", err)
			continue
		}
		total += len(pkg.Records)
	}
	return total, nil
}
