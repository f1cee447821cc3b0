package boxplot

import (
	"sort"

	"spcdash/domain/measurement"
	dstats "spcdash/domain/stats"
)

// AllGroupsKey labels the aggregate row spanning every group
const AllGroupsKey = "All entities"

// ValueFunc extracts a finite number from an item; false means "drop it"
type ValueFunc[T any] func(item T) (float64, bool)

// GroupFunc extracts the categorical key of an item
type GroupFunc[T any] func(item T) string

// GroupValues partitions items by key, keeps only finite values and
// computes statistics per group. Keys come back sorted ascending so the
// categorical axis lays groups out in a stable left-to-right order.
func GroupValues[T any](items []T, value ValueFunc[T], group GroupFunc[T], outlierThreshold float64) dstats.GroupedStatistics {
	byKey := make(map[string][]float64)
	for _, item := range items {
		v, ok := value(item)
		if !ok {
			continue
		}
		key := group(item)
		byKey[key] = append(byKey[key], v)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := dstats.GroupedStatistics{
		Groups:    make([]dstats.GroupStatistics, 0, len(keys)),
		Keys:      keys,
		AllValues: make([]float64, 0),
	}
	for _, key := range keys {
		values := byKey[key]
		result.Groups = append(result.Groups, dstats.GroupStatistics{
			Key:    key,
			Values: values,
			Count:  len(values),
			Stats:  CalculateStats(values, outlierThreshold),
		})
		result.AllValues = append(result.AllValues, values...)
	}
	return result
}

// ProcessGroupedStatistics groups measurement records by groupField and
// summarizes valueField per group. Values that do not coerce to a finite
// number are dropped silently.
func ProcessGroupedStatistics(records []measurement.Record, valueField, groupField string, outlierThreshold float64) dstats.GroupedStatistics {
	return GroupValues(records,
		func(r measurement.Record) (float64, bool) { return r.Value(valueField) },
		func(r measurement.Record) string { return r.Group(groupField) },
		outlierThreshold,
	)
}

// AggregateStatistics builds the "All entities" row from every retained value
func AggregateStatistics(grouped dstats.GroupedStatistics, outlierThreshold float64) dstats.GroupStatistics {
	return dstats.GroupStatistics{
		Key:    AllGroupsKey,
		Values: grouped.AllValues,
		Count:  len(grouped.AllValues),
		Stats:  CalculateStats(grouped.AllValues, outlierThreshold),
	}
}
