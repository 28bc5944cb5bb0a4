package cidr

// Entry pairs a collection identifier with its parsed block.
type Entry struct {
	ID    int64
	Block Block
}

// FindMostSpecificMatch returns the ID of the entry whose block contains ip
// with the longest prefix. Only a strictly longer prefix replaces the current
// best, so among equal prefixes the first entry in the slice wins.
// The boolean is false when no block contains ip.
func FindMostSpecificMatch(ip Addr, entries []Entry) (int64, bool) {
	var (
		bestID     int64
		bestPrefix = -1
	)
	for _, e := range entries {
		if !e.Block.Contains(ip) {
			continue
		}
		if e.Block.Prefix > bestPrefix {
			bestID = e.ID
			bestPrefix = e.Block.Prefix
		}
	}
	return bestID, bestPrefix >= 0
}
