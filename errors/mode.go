/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package errors

import "fmt"

// ErrorMode controls how Error() renders an *ers. Default matches plain Go
// errors (message only); the Code* modes are useful in logs where the
// numeric code should travel alongside the text.
type ErrorMode uint8

const (
	Default ErrorMode = iota
	ModeCode
	ModeCodeError
	ModeCodeErrorTrace
)

var modeError = Default

func SetModeReturnError(mode ErrorMode) { modeError = mode }
func GetModeReturnError() ErrorMode     { return modeError }

func formatError(e *ers) string {
	switch modeError {
	case ModeCode:
		return e.c.String()
	case ModeCodeError:
		return fmt.Sprintf("[%d] %s", e.c, e.e)
	case ModeCodeErrorTrace:
		if t := e.GetTrace(); t != "" {
			return fmt.Sprintf("[%d] %s (%s)", e.c, e.e, t)
		}
		return fmt.Sprintf("[%d] %s", e.c, e.e)
	default:
		return e.e
	}
}
