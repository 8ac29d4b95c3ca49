// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

// repairJSON attempts to fix common JSON formatting issues from LLM
// responses: keys missing their opening quote after { or , (for example
// `, related_questions":` becomes `, "related_questions":`).
func repairJSON(s string) string {
	src := []rune(s)
	fixed := make([]rune, 0, len(src)+16)

	i := 0
	for i < len(src) {
		ch := src[i]

		if ch != '{' && ch != ',' {
			fixed = append(fixed, ch)
			i++
			continue
		}

		fixed = append(fixed, ch)
		i++

		// Skip whitespace after the separator
		for i < len(src) && (src[i] == ' ' || src[i] == '\n' || src[i] == '\t') {
			fixed = append(fixed, src[i])
			i++
		}

		// A key starting with a letter instead of a quote may have lost its
		// opening quote; confirm by scanning for the `":` that closes it.
		if i < len(src) && src[i] != '"' && isIdentRune(src[i]) {
			keyStart := i
			for i < len(src) && (isIdentRune(src[i]) || src[i] == ' ') {
				i++
			}

			if i+1 < len(src) && src[i] == '"' && src[i+1] == ':' {
				fixed = append(fixed, '"')
				fixed = append(fixed, src[keyStart:i]...)
				continue
			}

			// Not a broken key; copy what was scanned untouched.
			fixed = append(fixed, src[keyStart:i]...)
		}
	}

	return string(fixed)
}

// isIdentRune returns true for runes valid in a JSON object key name.
func isIdentRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}
