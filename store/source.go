// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

// Source tags where a batch of records being mapped came from. The model
// store does not change its merge logic by source, but collaborators
// (observers, the singleton resolver) use it to decide how to react.
type Source string

const (
	RemoteRetrieved      Source = "RemoteRetrieved"
	RemoteSaved          Source = "RemoteSaved"
	LocalSaved           Source = "LocalSaved"
	LocalRetrieved       Source = "LocalRetrieved"
	ComponentRetrieved   Source = "ComponentRetrieved"
	DesktopInstalled     Source = "DesktopInstalled"
	RemoteActionRetrieved Source = "RemoteActionRetrieved"
	FileImport           Source = "FileImport"
)
