// Package mapper holds slice helpers shared by persistence mappers and DTO builders.
package mapper

import "fmt"

// MapSlice applies mapFunc to each element. A nil input yields nil.
func MapSlice[T any, R any](items []T, mapFunc func(T) R) []R {
	if items == nil {
		return nil
	}

	result := make([]R, 0, len(items))
	for _, item := range items {
		result = append(result, mapFunc(item))
	}
	return result
}

// MapSlicePtrWithKey maps a slice of pointers, skipping nil inputs and nil
// outputs. The key of the failing item is included in the error.
func MapSlicePtrWithKey[T any, R any, K any](
	items []*T,
	mapFunc func(*T) (*R, error),
	getKey func(*T) K,
) ([]*R, error) {
	if items == nil {
		return nil, nil
	}

	result := make([]*R, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		mapped, err := mapFunc(item)
		if err != nil {
			return nil, fmt.Errorf("failed to map item %v: %w", getKey(item), err)
		}
		if mapped != nil {
			result = append(result, mapped)
		}
	}
	return result, nil
}
