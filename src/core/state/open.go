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

// go/src/core/state/open.go
package database

import (
	"fmt"
	"strings"

	"github.com/sphinx-core/qvault/src/common"
)

// Store drivers accepted by Open.
const (
	DriverLevelDB = "leveldb"
	DriverSQLite  = "sqlite"
	DriverMemory  = "memory"
)

// Open opens the backend named by driver under dataDir.
func Open(driver, dataDir string) (Backend, error) {
	switch strings.ToLower(driver) {
	case DriverLevelDB, "":
		return OpenLevelDB(common.GetLevelDBPath(dataDir))
	case DriverSQLite:
		return OpenSQLite(common.GetSQLitePath(dataDir))
	case DriverMemory:
		return OpenMemoryLevelDB()
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
