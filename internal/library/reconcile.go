// Package library is the client side of the user library: the device-local
// cache and the remote authoritative store hold the same items at once, and
// this package reconciles the two.
package library

import (
	"sort"

	"manganime/pkg/models"
)

// Reconcile merges the device-local and remote views of one library.
// Pure: same inputs always produce the same outputs, no I/O.
//
// Rules:
//   - on a key collision the more recently written entry wins; ties go to
//     the remote (it is authoritative once the write has landed there),
//   - local-only entries are kept and reported as pending pushes,
//   - remote-only entries are kept as-is.
//
// The merged set is sorted most recently updated first.
func Reconcile(local, remote []models.LibraryItem) (merged []models.LibraryItem, pendingPush []models.LibraryItem) {
	remoteByKey := make(map[string]models.LibraryItem, len(remote))
	for _, item := range remote {
		remoteByKey[item.Key()] = item
	}

	merged = make([]models.LibraryItem, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local))

	for _, localItem := range local {
		key := localItem.Key()
		seen[key] = struct{}{}

		remoteItem, onRemote := remoteByKey[key]
		if !onRemote {
			merged = append(merged, localItem)
			pendingPush = append(pendingPush, localItem)
			continue
		}
		if localItem.LastUpdated.After(remoteItem.LastUpdated) {
			merged = append(merged, localItem)
			pendingPush = append(pendingPush, localItem)
		} else {
			merged = append(merged, remoteItem)
		}
	}

	for _, remoteItem := range remote {
		if _, ok := seen[remoteItem.Key()]; !ok {
			merged = append(merged, remoteItem)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].LastUpdated.After(merged[j].LastUpdated)
	})
	return merged, pendingPush
}
