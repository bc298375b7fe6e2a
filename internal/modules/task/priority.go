package task

// Приоритет хранится порядковым номером {0,1,2}, наружу отдаётся меткой.
// Старые данные могут содержать значения вне диапазона, поэтому фоллбеки
// ("medium" на чтении, 1 на записи) - часть контракта, не подстраховка.
const (
	PriorityLow    int16 = 0
	PriorityMedium int16 = 1
	PriorityHigh   int16 = 2
)

const (
	PriorityLabelLow    = "low"
	PriorityLabelMedium = "medium"
	PriorityLabelHigh   = "high"
)

// PriorityLabel декодирует порядковый номер в метку.
func PriorityLabel(p int16) string {
	switch p {
	case PriorityLow:
		return PriorityLabelLow
	case PriorityHigh:
		return PriorityLabelHigh
	default:
		return PriorityLabelMedium
	}
}

// PriorityOrdinal кодирует метку в порядковый номер.
func PriorityOrdinal(label string) int16 {
	switch label {
	case PriorityLabelLow:
		return PriorityLow
	case PriorityLabelHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// PriorityLabels - метки в порядке возрастания приоритета, для клавиатур.
func PriorityLabels() []string {
	return []string{PriorityLabelLow, PriorityLabelMedium, PriorityLabelHigh}
}
