//The MIT License (MIT)

//Copyright (c) 2013 didier amyot

//Permission is hereby granted, free of charge, to any person obtaining a copy
//of this software and associated documentation files (the "Software"), to deal
//in the Software without restriction, including without limitation the rights
//to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
//copies of the Software, and to permit persons to whom the Software is
//furnished to do so, subject to the following conditions:

//The above copyright notice and this permission notice shall be included in
//all copies or substantial portions of the Software.

//THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
//IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
//FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
//AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
//LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
//OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
//THE SOFTWARE.

/*
Package ophelib implements the Paillier partially homomorphic cryptosystem:
encryption, decryption, and the homomorphic ciphertext operations (add,
negate, subtract, scalar multiply) that make it useful for computing on
encrypted integers.

Two interchangeable implementations of the Scheme interface are provided.
Reference follows the textbook construction directly and is intended for
clarity and testing. Fast uses a structured prime form together with
FastMod (CRT-accelerated exponentiation mod n^2) and a precomputed
randomizer lookup table to make the scheme practical at 2048-7680 bit key
sizes.

On top of the cryptosystem, the Packing codec amortizes the cost of
encryption, decryption and homomorphic sums by bit-packing several signed
plaintexts into a single ciphertext, and the wire format gives every
cryptographic value here a compact BSON encoding.
*/
package ophelib
