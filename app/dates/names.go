package dates

import (
	"strings"
	"unicode"
)

// Month and weekday names seen in German, French, Spanish and Italian
// feeds, mapped to the English abbreviations the layouts expect.
var localNames = map[string]string{
	// de
	"januar": "Jan", "jänner": "Jan", "jän": "Jan", "februar": "Feb", "märz": "Mar", "maerz": "Mar", "mär": "Mar",
	"mai": "May", "juni": "Jun", "juli": "Jul", "oktober": "Oct", "okt": "Oct", "dezember": "Dec", "dez": "Dec",
	"montag": "Mon", "dienstag": "Tue", "mittwoch": "Wed", "donnerstag": "Thu", "freitag": "Fri",
	"samstag": "Sat", "sonnabend": "Sat", "sonntag": "Sun",
	"mo": "Mon", "di": "Tue", "mi": "Wed", "do": "Thu", "fr": "Fri", "sa": "Sat", "so": "Sun",
	// fr
	"janvier": "Jan", "janv": "Jan", "février": "Feb", "fevrier": "Feb", "févr": "Feb", "fevr": "Feb", "mars": "Mar",
	"avril": "Apr", "avr": "Apr", "juin": "Jun", "juillet": "Jul", "juil": "Jul", "août": "Aug", "aout": "Aug",
	"septembre": "Sep", "sept": "Sep", "octobre": "Oct", "novembre": "Nov", "décembre": "Dec", "decembre": "Dec", "déc": "Dec",
	"lundi": "Mon", "mardi": "Tue", "mercredi": "Wed", "jeudi": "Thu", "vendredi": "Fri", "samedi": "Sat", "dimanche": "Sun",
	// es
	"enero": "Jan", "ene": "Jan", "febrero": "Feb", "marzo": "Mar", "abril": "Apr", "abr": "Apr", "mayo": "May",
	"junio": "Jun", "julio": "Jul", "agosto": "Aug", "ago": "Aug", "septiembre": "Sep", "setiembre": "Sep",
	"octubre": "Oct", "noviembre": "Nov", "diciembre": "Dec", "dic": "Dec",
	"lunes": "Mon", "martes": "Tue", "miércoles": "Wed", "miercoles": "Wed", "jueves": "Thu", "viernes": "Fri",
	"sábado": "Sat", "sabado": "Sat", "domingo": "Sun",
	// it
	"gennaio": "Jan", "gen": "Jan", "febbraio": "Feb", "aprile": "Apr", "maggio": "May", "mag": "May",
	"giugno": "Jun", "giu": "Jun", "luglio": "Jul", "lug": "Jul", "settembre": "Sep", "set": "Sep",
	"ottobre": "Oct", "ott": "Oct", "dicembre": "Dec",
	"lunedì": "Mon", "martedì": "Tue", "mercoledì": "Wed", "giovedì": "Thu", "venerdì": "Fri",
	"sabato": "Sat", "domenica": "Sun",
}

// translateNames replaces localised month and weekday names with English
// abbreviations and drops the abbreviation dot after any word ("Jan.").
func translateNames(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	for i := 0; i < len(runes); {
		if !unicode.IsLetter(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}

		j := i
		for j < len(runes) && unicode.IsLetter(runes[j]) {
			j++
		}
		word := string(runes[i:j])
		if en, ok := localNames[strings.ToLower(word)]; ok {
			word = en
		}
		b.WriteString(word)

		if j < len(runes) && runes[j] == '.' {
			j++
		}
		i = j
	}
	return b.String()
}
