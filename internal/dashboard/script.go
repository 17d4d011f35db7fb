package dashboard

import (
	"encoding/json"
	"fmt"
)

// scope selects the document a script runs against
type scope int

const (
	// pageScope is the top-level site document
	pageScope scope = iota
	// frameScope is the visualization document. When the frame lives in the
	// page's process its content document is reached through the iframe.
	frameScope
)

const pagePrelude = `const root = document;`

const framePrelude = `const root = (() => {
	const f = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	try { if (f && f.contentDocument) return f.contentDocument; } catch (e) {}
	return document;
})();`

const helpers = `
const first = (xp) => root.evaluate(xp, root, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
const all = (xp) => {
	const r = root.evaluate(xp, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
	return out;
};
const visible = (el) => { if (!el) return false; const b = el.getBoundingClientRect(); return b.width > 0 && b.height > 0; };`

// jsString encodes s as a JavaScript string literal
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// script wraps body in an expression evaluated against the given scope.
// body must end by returning a JSON-serializable value.
func script(sc scope, frameXPath, body string) string {
	prelude := pagePrelude
	if sc == frameScope {
		prelude = fmt.Sprintf(framePrelude, jsString(frameXPath))
	}
	return "(() => {\n" + prelude + helpers + "\n" + body + "\n})()"
}

func presentJS(xpath string) string {
	return fmt.Sprintf(`return first(%s) !== null;`, jsString(xpath))
}

func visibleJS(xpath string) string {
	return fmt.Sprintf(`return visible(first(%s));`, jsString(xpath))
}

func clickJS(xpath string) string {
	return fmt.Sprintf(`const el = first(%s);
if (!el) return false;
el.scrollIntoView({block: 'center'});
el.click();
return true;`, jsString(xpath))
}

func scrollJS(xpath string) string {
	return fmt.Sprintf(`const el = first(%s);
if (!el) return false;
el.scrollIntoView({block: 'center'});
return true;`, jsString(xpath))
}

// titlesJS returns the title attribute of every match
func titlesJS(xpath string) string {
	return fmt.Sprintf(`return all(%s).map((el) => el.getAttribute('title') || '');`, jsString(xpath))
}

// checkedJS returns -1 when the checkbox is missing, else 0 or 1
func checkedJS(xpath string) string {
	return fmt.Sprintf(`const el = first(%s);
if (!el) return -1;
return el.checked ? 1 : 0;`, jsString(xpath))
}

// setTextJS replaces a text control's value and notifies listeners
func setTextJS(xpath, text string) string {
	return fmt.Sprintf(`const el = first(%s);
if (!el) return false;
el.focus();
el.value = %s;
el.dispatchEvent(new Event('input', {bubbles: true}));
el.dispatchEvent(new Event('change', {bubbles: true}));
return true;`, jsString(xpath), jsString(text))
}

func frameSourceJS(xpath string) string {
	return fmt.Sprintf(`const el = first(%s);
return el ? (el.src || '') : '';`, jsString(xpath))
}
