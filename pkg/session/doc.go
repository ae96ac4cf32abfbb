/*
Package session keeps the workspace of open page editors.

A Manager opens each page once per process, serializes open, close and delete
of the same page with reference-counted locks, and can extend that to several
replicas through a ports.DistributedLocker.
*/
package session
