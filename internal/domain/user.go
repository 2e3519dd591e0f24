package domain

import "regexp"

// Причины отказа валидации пользователя. Текст возвращается клиенту как есть.
const (
	ReasonNameRequired    = "name required"
	ReasonNameAlphabetic  = "name must be alphabetic"
	ReasonAddressRequired = "address required"
	ReasonPhoneRequired   = "phone required"
	ReasonEmailRequired   = "email required"
)

var userNamePattern = regexp.MustCompile(`^[a-zA-Z]*$`)

// User — сохранённый пользователь OMS.
type User struct {
	// ID назначается хранилищем при создании и больше не меняется.
	ID      int64
	Name    string
	Address string
	Phone   int64
	// Email уникален среди всех пользователей.
	Email string
}

// UserInput — кандидат на создание или обновление пользователя.
// Указатели отличают отсутствующее поле от нулевого значения.
type UserInput struct {
	Name    *string
	Address *string
	Phone   *int64
	Email   *string
}

// ValidateUser проверяет кандидата в фиксированном порядке и возвращает
// *ValidationError с причиной первой неудачной проверки.
func ValidateUser(in UserInput) error {
	// Пустое имя считаем отсутствующим: шаблон ниже пропускает пустую строку.
	if in.Name == nil || *in.Name == "" {
		return &ValidationError{Reason: ReasonNameRequired}
	}
	if !userNamePattern.MatchString(*in.Name) {
		return &ValidationError{Reason: ReasonNameAlphabetic}
	}
	if in.Address == nil {
		return &ValidationError{Reason: ReasonAddressRequired}
	}
	if in.Phone == nil {
		return &ValidationError{Reason: ReasonPhoneRequired}
	}
	if in.Email == nil {
		return &ValidationError{Reason: ReasonEmailRequired}
	}
	return nil
}

// Apply переносит поля кандидата в пользователя, не трогая ID.
// Вызывать только после успешной ValidateUser.
func (in UserInput) Apply(u User) User {
	u.Name = *in.Name
	u.Address = *in.Address
	u.Phone = *in.Phone
	u.Email = *in.Email
	return u
}
