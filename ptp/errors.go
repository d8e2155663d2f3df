package ptp

import "errors"

var errShortBody = errors.New("ptp: message body too short")
