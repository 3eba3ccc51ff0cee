package utils

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

var orgsimSourceDir string

func init() {
	_, file, _, _ := runtime.Caller(0)
	// compatible solution to get orgsim source directory with various operating systems
	orgsimSourceDir = sourceDir(file)
}

func sourceDir(file string) string {
	dir := filepath.Dir(file)
	dir = filepath.Dir(dir)
	return filepath.ToSlash(dir) + "/"
}

// FileWithLineNum return the file name and line number of the current file
func FileWithLineNum() string {
	// the second caller usually from orgsim internal, so set i start from 2
	for i := 2; i < 15; i++ {
		_, file, line, ok := runtime.Caller(i)
		if ok && (!strings.HasPrefix(file, orgsimSourceDir) || strings.HasSuffix(file, "_test.go")) {
			return file + ":" + strconv.FormatInt(int64(line), 10)
		}
	}

	return ""
}

// CheckTruth check string true or not
func CheckTruth(vals ...string) bool {
	for _, val := range vals {
		if val != "" && !strings.EqualFold(val, "false") && val != "0" {
			return true
		}
	}
	return false
}

// CallerFrame retrieves the first relevant stack frame outside of orgsim's internal implementation files
func CallerFrame() runtime.Frame {
	pcs := [13]uintptr{}
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for i := 0; i < n; i++ {
		frame, _ := frames.Next()
		if !strings.HasPrefix(frame.File, orgsimSourceDir) || strings.HasSuffix(frame.File, "_test.go") {
			return frame
		}
	}

	return runtime.Frame{}
}
