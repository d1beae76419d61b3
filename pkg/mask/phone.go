package mask

// PhoneFormatter applies Phone.
var PhoneFormatter Formatter = FormatterFunc(Phone)

// Phone masks Brazilian phone numbers as "(DD) XXXX-XXXX" (landline) or
// "(DD) 9XXXX-XXXX" (mobile). The mobile layout is chosen when more than 10
// digits are present, or when the third digit is 9 and at least 7 digits are
// present. Extra digits are dropped.
func Phone(raw string) string {
	digits := Digits(raw)
	n := len(digits)
	if n == 0 {
		return ""
	}

	out := "(" + digits[:min(n, 2)]
	if n <= 2 {
		return out
	}

	if n > 10 || (digits[2] == '9' && n >= 7) {
		out += ") " + digits[2:min(n, 7)]
		if n > 7 {
			out += "-" + digits[7:min(n, 11)]
		}
		return out
	}

	out += ") " + digits[2:min(n, 6)]
	if n > 6 {
		out += "-" + digits[6:min(n, 10)]
	}
	return out
}

// PhoneDigitCount returns how many digits a (possibly masked) phone holds.
func PhoneDigitCount(raw string) int {
	return len(Digits(raw))
}
