// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

import "errors"

// Validation errors.  Their text is meant for the user.
var (
	ErrEmptyAccessKey = errors.New("Access Key cannot be empty")
	ErrEmptySecretKey = errors.New("Secret Key cannot be empty")
	ErrEmptyClientID  = errors.New("Client ID cannot be empty")
)

// ErrAlreadyMounted is returned by Mount when the Controller is mounted.
var ErrAlreadyMounted = errors.New("controller already mounted")
