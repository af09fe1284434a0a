/*
   SOSEDI - Neighborhood community platform companion service
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package validation содержит правила проверки пользовательского ввода:
// номера автомобилей, номера квартир и форматирование цен.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MinApartmentNumber = 1
	MaxApartmentNumber = 515
)

var (
	ErrInvalidPlate     = errors.New("неверный формат номера автомобиля")
	ErrInvalidApartment = errors.New("номер квартиры должен быть числом от 1 до 515")
)

// Буквы, совпадающие по начертанию с латинскими, только кириллица
var plateRegexp = regexp.MustCompile(`^[АВЕКМНОРСТУХ]\d{3}[АВЕКМНОРСТУХ]{2}\d{2,3}$`)

// NormalizePlate убирает пробелы и переводит номер в верхний регистр
func NormalizePlate(plate string) string {
	plate = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, plate)

	// Caser хранит состояние, поэтому создается на каждый вызов
	return cases.Upper(language.Russian).String(plate)
}

// ValidatePlate проверяет российский номер вида А123АА12 / А123АА123
func ValidatePlate(plate string) error {
	if !plateRegexp.MatchString(NormalizePlate(plate)) {
		return ErrInvalidPlate
	}
	return nil
}

// ParseApartmentNumber принимает только целые числа от 1 до 515 включительно
func ParseApartmentNumber(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, ErrInvalidApartment
	}

	for _, r := range input {
		if r < '0' || r > '9' {
			return 0, ErrInvalidApartment
		}
	}

	number, err := strconv.Atoi(input)
	if err != nil {
		return 0, ErrInvalidApartment
	}

	if number < MinApartmentNumber || number > MaxApartmentNumber {
		return 0, ErrInvalidApartment
	}

	return number, nil
}

// FormatPrice оставляет в строке только цифры и расставляет пробел
// через каждые три разряда справа: "12000" -> "12 000".
func FormatPrice(input string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, input)

	if digits == "" {
		return ""
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		// Не влезает в int - группируем вручную
		return groupDigits(digits)
	}

	return humanize.FormatInteger("# ###.", n)
}

func groupDigits(digits string) string {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0"
	}

	var sb strings.Builder
	head := len(digits) % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

// Validator - обертка над validator/v10 с зарегистрированными правилами проекта
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("ru_plate", func(fl validator.FieldLevel) bool {
		return ValidatePlate(fl.Field().String()) == nil
	})

	return &Validator{validate: v}
}

// Struct проверяет структуру по тегам `validate` и возвращает
// человекочитаемую ошибку с перечнем неверных полей.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var problems []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "ru_plate" {
			return ErrInvalidPlate
		}
		if fe.StructField() == "Number" {
			return ErrInvalidApartment
		}
		problems = append(problems, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}

	return fmt.Errorf("неверно заполнены поля: %s", strings.Join(problems, ", "))
}
