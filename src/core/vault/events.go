// MIT License
//
// # Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/core/vault/events.go
package vault

import "time"

// Operation names reported in errors and events.
const (
	OpLock             = "lock"
	OpRechallenge      = "rechallenge"
	OpInitStorage      = "init_storage"
	OpUploadChunk      = "upload_chunk"
	OpInitVerification = "init_verification"
	OpStepFORS         = "step_fors"
	OpStepWOTS         = "step_wots"
	OpFinalize         = "finalize"
	OpAbort            = "abort"
	OpRegister         = "register"
	OpStatus           = "status"
)

// Event describes one completed vault operation.
type Event struct {
	VaultID  string        `json:"vault_id"`
	Op       string        `json:"op"`
	Phase    Phase         `json:"phase"`
	Step     int           `json:"step"`
	Kind     Kind          `json:"kind,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Time     time.Time     `json:"time"`
}

// Failed reports whether the operation returned an error.
func (e Event) Failed() bool { return e.Error != "" }

// Observer is notified after every mutating operation.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }

type observers []Observer

func (o observers) Observe(e Event) {
	for _, obs := range o {
		obs.Observe(e)
	}
}

// Observers fans events out to several observers.
func Observers(obs ...Observer) Observer {
	list := make(observers, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}
