// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package account derives a provider's account-management ("change
// password") links from its issuer URL.
package account
