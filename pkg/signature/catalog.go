// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package signature

// 📚 Catalog returns the built-in signatures, in declaration order. When
// more than one signature could match at the same offset, the earlier entry
// wins, so more specific patterns must be declared first.
//
// Each entry rewrites one capability-check routine into a form that takes
// the permissive branch unconditionally without changing the routine's
// length or the offsets of anything after it.
func Catalog() []Signature {
	return []Signature{
		// cmp al, 0 / jne +5: force the jump so the unsupported-environment
		// bail-out is skipped.
		mustSignature("capability-gate-jne", "3C 00 75 05", "3C 00 EB 05"),
		// test eax, eax / je +5: same gate with the inverted condition.
		mustSignature("capability-gate-je", "85 C0 74 05", "85 C0 EB 05"),
		// mov eax, imm32 / ret: capability mask loader; report everything
		// supported regardless of the compiled-in mask.
		mustSignature("capability-mask-load", "B8 ?? ?? ?? ?? C3", "B8 FF FF FF FF C3"),
	}
}
