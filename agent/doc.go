/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agent drives a model-led conversation loop against a bounded set of
tools until the model produces a final text answer.

The loop starts from a single user turn, sends the growing conversation to
the model, and inspects each response. A response carrying tool-use blocks
has every requested call executed in the order the model emitted them; the
results are appended as one tool-result turn and the model is invoked again.
A response with no tool-use blocks ends the loop and its first text segment
becomes the answer.

Tool handlers never return errors: failures are rendered into the result map
fed back to the model, which decides how to proceed or report them. A model
call failure, by contrast, aborts the whole run. The number of tool-use
rounds is bounded; exceeding the bound fails with ErrMaxRounds rather than
looping on an uncooperative model.
*/
package agent
