package compare

import (
	"sort"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/pkg/convert"
)

// Settings computes the diff between locally declared settings and the
// remote config vars. Local values are normalized with convert.ToString and
// compared to remote values by exact string equality. The result holds one
// entry per key of the union of both maps, sorted by key.
func Settings(local map[string]any, remote map[string]string) []domain.ConfigEntry {
	entries := make([]domain.ConfigEntry, 0, len(local)+len(remote))

	for key, raw := range local {
		localValue := convert.ToString(raw)
		remoteValue, ok := remote[key]
		if !ok {
			entries = append(entries, domain.ConfigEntry{
				Key:        key,
				LocalValue: &localValue,
				Status:     domain.StatusLocalOnly,
			})
			continue
		}
		status := domain.StatusMismatch
		if localValue == remoteValue {
			status = domain.StatusMatch
		}
		entries = append(entries, domain.ConfigEntry{
			Key:         key,
			LocalValue:  &localValue,
			RemoteValue: &remoteValue,
			Status:      status,
		})
	}

	for key, value := range remote {
		if _, ok := local[key]; ok {
			continue
		}
		remoteValue := value
		entries = append(entries, domain.ConfigEntry{
			Key:         key,
			RemoteValue: &remoteValue,
			Status:      domain.StatusRemoteOnly,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}
