// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that handles the provider's redirect back to the
relying party, for both the authorization code flow and the implicit flow.

A Handler inspects the callback URL and runs exactly one of, in order:

* the error branch: the provider returned an error parameter (fragment
first, then query).

* the implicit flow branch: an id_token in the fragment.  Its nonce is
checked against the pending nonce before anything is exchanged.

* the authorization code flow branch: a code in the query.

* the manual entry branch: neither, on the interactive entry page.

NewHTTPHandler wraps a Handler as an http.HandlerFunc.
*/
package callback
