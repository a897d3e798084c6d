package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinProjectTitleLength = 3
	MaxProjectTitleLength = 200
	MinBudget             = 0.0
	MaxBudget             = 100000000.0 // 100 миллионов

	MinCoverLetterLength = 10
	MaxCoverLetterLength = 2000

	MinDisputeTitleLength       = 3
	MaxDisputeTitleLength       = 200
	MinDisputeDescriptionLength = 10
	MaxDisputeDescriptionLength = 5000
	MaxResolutionLength         = 5000

	MaxArchiveNoteLength = 2000
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateProjectTitle проверяет название проекта.
func ValidateProjectTitle(title string) error {
	if err := ValidateNonEmpty("название проекта", title); err != nil {
		return err
	}
	return ValidateLength("название проекта", strings.TrimSpace(title), MinProjectTitleLength, MaxProjectTitleLength)
}

// ValidateBudget проверяет бюджет проекта.
func ValidateBudget(budget float64) error {
	if budget < MinBudget {
		return fmt.Errorf("бюджет не может быть отрицательным")
	}
	if budget > MaxBudget {
		return fmt.Errorf("бюджет не может превышать %.0f", MaxBudget)
	}
	return nil
}

// ValidateProposedAmount проверяет сумму из заявки исполнителя, если она указана.
func ValidateProposedAmount(amount *float64) error {
	if amount == nil {
		return nil
	}
	if *amount <= 0 {
		return fmt.Errorf("предложенная сумма должна быть положительной")
	}
	if *amount > MaxBudget {
		return fmt.Errorf("предложенная сумма не может превышать %.0f", MaxBudget)
	}
	return nil
}

// ValidateCoverLetter проверяет сопроводительное письмо. Пустое письмо допустимо.
func ValidateCoverLetter(coverLetter string) error {
	coverLetter = strings.TrimSpace(coverLetter)
	if coverLetter == "" {
		return nil
	}
	return ValidateLength("сопроводительное письмо", coverLetter, MinCoverLetterLength, MaxCoverLetterLength)
}

// ValidateDispute проверяет заголовок и описание спора.
func ValidateDispute(title, description string) error {
	if err := ValidateLength("заголовок спора", strings.TrimSpace(title), MinDisputeTitleLength, MaxDisputeTitleLength); err != nil {
		return err
	}
	return ValidateLength("описание спора", strings.TrimSpace(description), MinDisputeDescriptionLength, MaxDisputeDescriptionLength)
}

// ValidateResolution проверяет текст решения по спору.
func ValidateResolution(resolution string) error {
	return ValidateLength("решение", strings.TrimSpace(resolution), 0, MaxResolutionLength)
}

// ValidateArchiveNote проверяет заметку архива.
func ValidateArchiveNote(note string) error {
	if err := ValidateNonEmpty("заметка", note); err != nil {
		return err
	}
	return ValidateLength("заметка", strings.TrimSpace(note), 0, MaxArchiveNoteLength)
}
