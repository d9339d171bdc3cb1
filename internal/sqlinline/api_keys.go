package sqlinline

// The api_keys table holds one row per remote service; only 'gemini' is used.

const QSelectGeminiKey = `--sql b8957910-5eff-4d71-91a4-273467e2a494
select api_key, source, updated_at
from api_keys
where service = 'gemini';
`

const QUpsertGeminiKey = `--sql c1cdbf77-af8d-4b55-ad02-9a833935f4fd
insert into api_keys (service, api_key, source, updated_at)
values ('gemini', $1::text, $2::text, now())
on conflict (service) do update set
    api_key = excluded.api_key,
    source = excluded.source,
    updated_at = now();
`
