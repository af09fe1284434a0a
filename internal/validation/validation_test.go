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

package validation

import (
	"testing"

	"Unbewohnte/SOSEDI/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePlate(t *testing.T) {
	valid := []string{"А123АА12", "а123аа12", "А123аА12", "А123АА123", "в 456 мх 77"}
	for _, plate := range valid {
		assert.NoError(t, ValidatePlate(plate), plate)
	}

	invalid := []string{
		"А1234АА12",
		"B123AA12", // латиница
		"А123АA12", // смесь
		"А123АА",
		"А123АА1",
		"Б123АА12",
		"",
	}
	for _, plate := range invalid {
		assert.ErrorIs(t, ValidatePlate(plate), ErrInvalidPlate, plate)
	}
}

func TestParseApartmentNumber(t *testing.T) {
	for input, want := range map[string]int{"1": 1, "515": 515, " 42 ": 42} {
		got, err := ParseApartmentNumber(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	for _, input := range []string{"0", "516", "abc", "-1", "12a", "", "1.5"} {
		_, err := ParseApartmentNumber(input)
		assert.ErrorIs(t, err, ErrInvalidApartment, input)
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[string]string{
		"12000":     "12 000",
		"12 000":    "12 000",
		"1 2 0 0 0": "12 000",
		"999":       "999",
		"1000000":   "1 000 000",
		"abc":       "",
		"":          "",
		"7":         "7",
	}

	for input, want := range cases {
		assert.Equal(t, want, FormatPrice(input), input)
	}
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "123 456 789 012 345 678 901", groupDigits("123456789012345678901"))
	assert.Equal(t, "0", groupDigits("000"))
}

func TestValidatorStruct(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(domain.Car{Brand: "Lada", Plate: "А123АА12"}))
	assert.ErrorIs(t, v.Struct(domain.Car{Brand: "Lada", Plate: "B123AA12"}), ErrInvalidPlate)

	assert.NoError(t, v.Struct(domain.Apartment{House: "5", Number: 515}))
	assert.ErrorIs(t, v.Struct(domain.Apartment{House: "5", Number: 516}), ErrInvalidApartment)

	err := v.Struct(domain.Car{Plate: "А123АА12"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brand")
}
