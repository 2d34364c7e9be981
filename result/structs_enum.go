// Code generated by go-enum
// DO NOT EDIT!

package result

import (
	"fmt"
)

const (
	// StatusUnknown is a Status of type Unknown
	StatusUnknown Status = iota
	// StatusSuccess is a Status of type Success
	StatusSuccess
	// StatusFailed is a Status of type Failed
	StatusFailed
)

const _StatusName = "unknownsuccessfailed"

var _StatusMap = map[Status]string{
	0: _StatusName[0:7],
	1: _StatusName[7:14],
	2: _StatusName[14:20],
}

// String implements the Stringer interface.
func (x Status) String() string {
	if str, ok := _StatusMap[x]; ok {
		return str
	}
	return fmt.Sprintf("Status(%d)", x)
}

var _StatusValue = map[string]Status{
	_StatusName[0:7]:   0,
	_StatusName[7:14]:  1,
	_StatusName[14:20]: 2,
}

// ParseStatus attempts to convert a string to a Status
func ParseStatus(name string) (Status, error) {
	if x, ok := _StatusValue[name]; ok {
		return x, nil
	}
	return Status(0), fmt.Errorf("%s is not a valid Status", name)
}
