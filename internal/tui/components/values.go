package components

import "github.com/Veraticus/expense-flow/internal/model"

// FormValues renders t as raw form input keyed by field name.
func FormValues(t model.Transaction) map[string]string {
	values := make(map[string]string, len(model.EditableFields))
	for _, field := range model.EditableFields {
		values[field] = model.FieldValue(t, field)
	}
	return values
}

// ExpenseFormValues renders f as raw form input keyed by field name.
func ExpenseFormValues(f model.ExpenseForm) map[string]string {
	values := make(map[string]string, len(model.EditableFields))
	for _, field := range model.EditableFields {
		values[field] = f.Get(field)
	}
	return values
}
