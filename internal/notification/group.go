package notification

// Group is the notifications sharing one GroupKey, in list order.
type Group struct {
	Key   string
	Items []Notification
	// Hidden counts items beyond the display limit.
	Hidden int
}

// GroupByKey buckets ns by GroupKey in first-seen order. Each group keeps at
// most limit items; limit <= 0 keeps all.
func GroupByKey(ns []Notification, limit int) []Group {
	idx := make(map[string]int)
	var out []Group
	for _, n := range ns {
		i, ok := idx[n.GroupKey]
		if !ok {
			i = len(out)
			idx[n.GroupKey] = i
			out = append(out, Group{Key: n.GroupKey})
		}
		g := &out[i]
		if limit > 0 && len(g.Items) >= limit {
			g.Hidden++
			continue
		}
		g.Items = append(g.Items, n)
	}
	return out
}
