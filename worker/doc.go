/*
Package worker implements the guest handler that drives segmentation.

Each call carries the model, the image URL and, optionally, prompt points:

	{"modelURL": "...", "modelID": "sam_base", "imageURL": "...", "points": [[0.4, 0.6, true]]}

The first call for an image loads the model if needed and computes the image
embeddings, replying {"status": "complete-embedding"} when no points were sent.
Calls with points reuse those embeddings and reply {"status": "complete"} with
the mask as a PNG data URL in output.maskURL.

Progress is written to the host console with console.Logf; failures are also
sent to the host logger and counted.
*/
package worker
