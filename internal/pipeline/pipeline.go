// Package pipeline は一覧表示向けの汎用的なフィルタ・ソート処理を提供する。
// すべての関数は純粋であり、入力スライスを書き換えない。
package pipeline

import "sort"

// Filter は指定フィールドが値に完全一致する要素のみを返す。
// 値が空の場合はフィルタなしとして入力をそのまま返す（恒等変換）。
// 一致は大文字小文字を区別し、部分一致は行わない。元の順序を保存する。
func Filter[T any](items []T, value string, key func(T) string) []T {
	if value == "" {
		return items
	}

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if key(item) == value {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// SortByKey は指定キーの昇順（descがtrueなら降順）でソートした新しい
// スライスを返す。安定ソートを使用するため、キーが等しい要素同士の
// 相対順序は入力の順序が保たれる。
func SortByKey[T any](items []T, key func(T) string, desc bool) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := key(sorted[i]), key(sorted[j])
		if desc {
			return a > b
		}
		return a < b
	})
	return sorted
}

// SortBy は任意の比較関数でソートした新しいスライスを返す。
// 日付や数値など文字列比較が適さないキーに使用する。安定ソート。
func SortBy[T any](items []T, less func(a, b T) bool) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}
