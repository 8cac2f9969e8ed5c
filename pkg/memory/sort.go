package memory

import "sort"

func sortStreams(streams []StreamSnapshot) {
	sort.Slice(streams, func(i, j int) bool {
		if !streams[i].CreatedAt.Equal(streams[j].CreatedAt) {
			return streams[i].CreatedAt.Before(streams[j].CreatedAt)
		}

		return streams[i].ID < streams[j].ID
	})
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}

		return entries[i].ID < entries[j].ID
	})
}
