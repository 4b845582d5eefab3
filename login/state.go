// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

// State of the login page.
type State int

const (
	// StateLoading is shown until the decision is made.  The login form
	// must not be shown while loading.
	StateLoading State = iota

	// StateRedirectingToProvider keeps the loading view up while the
	// browser is sent to the provider.
	StateRedirectingToProvider

	// StateFormVisible shows the local login form.
	StateFormVisible

	// StateHome sends an authenticated user home.
	StateHome
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRedirectingToProvider:
		return "redirecting"
	case StateFormVisible:
		return "form"
	case StateHome:
		return "home"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Navigates reports whether the state ends with the browser leaving the
// page.
func (s State) Navigates() bool {
	return s == StateRedirectingToProvider || s == StateHome
}

// FormView is what the local login form needs to render.
type FormView struct {
	// ShowOpenID is true when the provider published an authorization
	// endpoint.
	ShowOpenID bool `json:"showOpenID"`

	// ClientID is the pre-registered client.  When it's set the form offers
	// a "log in with OpenID" button, otherwise a link to ManualEntryPath.
	ClientID string `json:"clientId,omitempty"`

	// AuthorizationEndpoint of the provider.
	AuthorizationEndpoint string `json:"authorizationEndpoint,omitempty"`

	// ManualEntryPath is the page collecting a client id from the user.
	ManualEntryPath string `json:"manualEntryPath,omitempty"`

	// Alert is a message for the user, if any.
	Alert string `json:"alert,omitempty"`
}

// Decision is the outcome of resolving the login page.
type Decision struct {
	State State `json:"state"`

	// RedirectURL is where to navigate for StateRedirectingToProvider and
	// StateHome.
	RedirectURL string `json:"redirectURL,omitempty"`

	// Form is set for StateFormVisible.
	Form *FormView `json:"form,omitempty"`

	// Session is the authorization attempt, for StateRedirectingToProvider.
	Session *AuthSessionContext `json:"-"`
}
