package join

import "ticket-admin/models"

// BuildIndex keys items by the normalized id keyFn returns. Items whose key does not
// normalize are skipped; on duplicate keys the later item wins.
func BuildIndex[T any](items []T, keyFn func(T) any) map[int64]T {
	index := make(map[int64]T, len(items))
	for _, item := range items {
		id, ok := NormalizeID(keyFn(item))
		if !ok {
			continue
		}
		index[id] = item
	}
	return index
}

func OrderIndex(orders []models.Order) map[int64]models.Order {
	return BuildIndex(orders, func(o models.Order) any { return o.ID })
}

func CustomerIndex(customers []models.Customer) map[int64]models.Customer {
	return BuildIndex(customers, func(c models.Customer) any { return c.ID })
}

func EventIndex(events []models.Event) map[int64]models.Event {
	return BuildIndex(events, func(e models.Event) any { return e.ID })
}

// EventNames maps event ids to their names.
func EventNames(events []models.Event) map[int64]string {
	names := make(map[int64]string, len(events))
	for _, e := range events {
		if id, ok := NormalizeID(e.ID); ok {
			names[id] = e.Name
		}
	}
	return names
}

// EventLabel returns the event name for ref, "Event #<id>" when the event is unknown,
// or "-" when ref carries no id at all.
func EventLabel(names map[int64]string, ref any) string {
	id, ok := NormalizeID(ref)
	if !ok {
		return "-"
	}
	if name := names[id]; name != "" {
		return name
	}
	return "Event #" + formatID(id)
}
