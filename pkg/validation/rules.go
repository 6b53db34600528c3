package validation

import (
	"regexp"

	"fuel-pricing/pkg/constants"

	"github.com/go-playground/validator/v10"
)

var brPhoneRe = regexp.MustCompile(`^\+?(55)?\(?\d{2}\)?9?\d{4}-?\d{4}$`)

func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("cnpj", isCNPJ); err != nil {
		return err
	}
	if err := v.RegisterValidation("cpf_cnpj", isCPFOrCNPJ); err != nil {
		return err
	}
	if err := v.RegisterValidation("fuel_product", isFuelProduct); err != nil {
		return err
	}
	if err := v.RegisterValidation("br_phone", isBrazilianPhone); err != nil {
		return err
	}
	return nil
}

func isCNPJ(fl validator.FieldLevel) bool {
	return ValidCNPJ(fl.Field().String())
}

func isCPFOrCNPJ(fl validator.FieldLevel) bool {
	doc := OnlyDigits(fl.Field().String())
	switch len(doc) {
	case 11:
		return ValidCPF(doc)
	case 14:
		return ValidCNPJ(doc)
	}
	return false
}

func isFuelProduct(fl validator.FieldLevel) bool {
	return constants.IsFuelProduct(fl.Field().String())
}

func isBrazilianPhone(fl validator.FieldLevel) bool {
	s := regexp.MustCompile(`[\s.]`).ReplaceAllString(fl.Field().String(), "")
	return brPhoneRe.MatchString(s)
}

func OnlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// ValidCNPJ checks length and both mod-11 check digits. Punctuation is ignored.
func ValidCNPJ(s string) bool {
	d := OnlyDigits(s)
	if len(d) != 14 || allSame(d) {
		return false
	}
	w1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	w2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	return checkDigit(d[:12], w1) == int(d[12]-'0') && checkDigit(d[:13], w2) == int(d[13]-'0')
}

func ValidCPF(s string) bool {
	d := OnlyDigits(s)
	if len(d) != 11 || allSame(d) {
		return false
	}
	w1 := []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	w2 := []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	return checkDigit(d[:9], w1) == int(d[9]-'0') && checkDigit(d[:10], w2) == int(d[10]-'0')
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
