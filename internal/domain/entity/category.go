package entity

// Category categoría de gasto (plano de contas), solo lectura para el pipeline.
type Category struct {
	ID     string
	Name   string
	Kind   string // expense, income
	Active bool
}
