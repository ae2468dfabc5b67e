// Package audio records a single spoken utterance from the microphone.
//
// Capture reads the default PortAudio input device, a VoiceDetector
// classifies each buffer as speech or silence, and SpeechTracker decides
// when the speaker has finished. Recorder ties the three together and
// EncodeWAV turns the result into the 16 kHz mono WAV that speech
// recognizers expect. Probe checks whether the process may open the
// microphone at all.
package audio
