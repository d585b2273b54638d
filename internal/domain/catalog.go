package domain

import "strings"

// CategoryAll is the catalogue filter value that matches every product.
const CategoryAll = "todas"

// DefaultCategories are always offered by the catalogue before product-derived ones.
var DefaultCategories = []string{
	"Todas las categorías",
	"Ejecutiva",
	"Ergonómica",
	"Gaming",
	"Operativa",
	"Oficina",
}

// Categories returns DefaultCategories followed by unseen product categories in first-seen order.
func Categories(products []Product) []string {
	seen := make(map[string]struct{}, len(DefaultCategories)+len(products))
	out := make([]string, 0, len(DefaultCategories)+len(products))
	add := func(category string) {
		if category == "" {
			return
		}
		if _, ok := seen[category]; ok {
			return
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	for _, category := range DefaultCategories {
		add(category)
	}
	for _, product := range products {
		add(product.Category)
	}
	return out
}

// FilterProducts matches term case-insensitively against name, short description and features,
// and category exactly unless it is empty or CategoryAll.
func FilterProducts(products []Product, term, category string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	category = strings.TrimSpace(category)
	matchAll := category == "" || strings.EqualFold(category, CategoryAll)

	out := make([]Product, 0, len(products))
	for _, product := range products {
		if !matchAll && product.Category != category {
			continue
		}
		if term != "" && !productMatches(product, term) {
			continue
		}
		out = append(out, product)
	}
	return out
}

func productMatches(product Product, term string) bool {
	if strings.Contains(strings.ToLower(product.Name), term) {
		return true
	}
	if strings.Contains(strings.ToLower(product.ShortDescription), term) {
		return true
	}
	for _, feature := range product.Features {
		if strings.Contains(strings.ToLower(feature), term) {
			return true
		}
	}
	return false
}

// NextProductID returns max(ids, 0) + 1.
func NextProductID(products []Product) int64 {
	var max int64
	for _, product := range products {
		if product.ID > max {
			max = product.ID
		}
	}
	return max + 1
}
