/*
Package geometry turns live drag, resize and rotate state into rendering hints.

It is a pure projection: nothing here touches a document. Pointer moves are
fed to a Gesture, which quantises coordinates to the grid, finds alignment
guides against sibling rectangles and produces readouts. Only Gesture.End
yields a patch to commit; Gesture.Cancel discards the gesture.

Every function is O(number of siblings) and allocates no document copies, so
it is safe to call on every pointer-move event.
*/
package geometry
